package generation

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugen/examgen-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// validWireQuestion builds a well-formed wire item whose stem embeds n so
// ordering can be asserted after decoding.
func validWireQuestion(n int) map[string]any {
	return map[string]any{
		"question_text": fmt.Sprintf("What is described in statement %d?", n),
		"choices": []map[string]any{
			{"number": 1, "text": "alpha"},
			{"number": 2, "text": "beta"},
			{"number": 3, "text": "gamma"},
			{"number": 4, "text": "delta"},
		},
		"correct_answer": "2",
		"explanation":    "Beta matches the statement.",
		"passage":        "",
	}
}

func envelopeJSON(t *testing.T, items []map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"questions": items})
	require.NoError(t, err)
	return raw
}

func TestDecode_EnvelopeForm(t *testing.T) {
	t.Parallel()

	items := []map[string]any{validWireQuestion(1), validWireQuestion(2)}
	got := Decode(testLogger(), envelopeJSON(t, items), 5)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)
	assert.Contains(t, got[0].Text.Text, "statement 1")
	assert.Contains(t, got[1].Text.Text, "statement 2")
}

func TestDecode_BareArrayForm(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal([]map[string]any{validWireQuestion(1)})
	require.NoError(t, err)

	got := Decode(testLogger(), raw, 5)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Number)
}

func TestDecode_TruncatesOverproduction(t *testing.T) {
	t.Parallel()

	items := make([]map[string]any, 0, 9)
	for i := 1; i <= 9; i++ {
		items = append(items, validWireQuestion(i))
	}

	got := Decode(testLogger(), envelopeJSON(t, items), 4)

	require.Len(t, got, 4)
	for i, q := range got {
		assert.Equal(t, i+1, q.Number)
		assert.Contains(t, q.Text.Text, fmt.Sprintf("statement %d", i+1))
	}
}

func TestDecode_MalformedJSONReturnsEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not json at all", `{"questions": "oops"}`, "[{broken"} {
		got := Decode(testLogger(), []byte(raw), 5)
		assert.Empty(t, got, "input %q", raw)
	}
}

func TestDecode_SkipsInvalidItemsAndRenumbers(t *testing.T) {
	t.Parallel()

	bad := validWireQuestion(2)
	bad["choices"] = []map[string]any{{"number": 1, "text": "only one"}}

	items := []map[string]any{validWireQuestion(1), bad, validWireQuestion(3)}
	got := Decode(testLogger(), envelopeJSON(t, items), 10)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)
	assert.Contains(t, got[1].Text.Text, "statement 3")
}

func TestDecode_PassageSemantics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		passage     string
		wantType    domain.SourceType
		wantUsed    bool
		wantPassage string
	}{
		{"literal one means original", "1", domain.SourceTypeOriginal, true, ""},
		{"rewritten passage", "A shortened passage.", domain.SourceTypeModified, true, "A shortened passage."},
		{"empty means none", "", domain.SourceTypeNone, false, ""},
		{"whitespace means none", "   ", domain.SourceTypeNone, false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			item := validWireQuestion(1)
			item["passage"] = tc.passage

			got := Decode(testLogger(), envelopeJSON(t, []map[string]any{item}), 1)
			require.Len(t, got, 1)

			assert.Equal(t, tc.wantType, got[0].PassageInfo.SourceType)
			assert.Equal(t, tc.wantUsed, got[0].PassageInfo.OriginalUsed)
			assert.Equal(t, tc.wantPassage, got[0].Text.ModifiedPassage)
		})
	}
}

func TestDecode_ReferenceTextMapsToBoxContent(t *testing.T) {
	t.Parallel()

	item := validWireQuestion(1)
	item["reference_text"] = "<보기> extra material"

	got := Decode(testLogger(), envelopeJSON(t, []map[string]any{item}), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "<보기> extra material", got[0].Text.BoxContent)
}
