package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParticipants(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		got, err := ParseParticipants([]byte(`[{"number": 1, "name": " Ana "}, {"number": 12, "name": "Luis"}]`))
		require.NoError(t, err)
		assert.Equal(t, map[int]string{1: "Ana", 12: "Luis"}, got)
	})

	t.Run("object keyed by number", func(t *testing.T) {
		got, err := ParseParticipants([]byte("\n{\"3\": \"Marta\", \"7\": \"Pablo\"}"))
		require.NoError(t, err)
		assert.Equal(t, map[int]string{3: "Marta", 7: "Pablo"}, got)
	})

	for name, doc := range map[string]string{
		"empty":          "  ",
		"scalar":         `"Ana"`,
		"broken list":    `[{"number": 1,`,
		"zero number":    `[{"number": 0, "name": "Ana"}]`,
		"non-number key": `{"one": "Ana"}`,
		"negative key":   `{"-4": "Ana"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseParticipants([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRaffleNames(t *testing.T) {
	r := newTestRaffle(t, 10)
	r = sell(t, r, "Buyer", 1, 2)
	r = ImportParticipants(r, map[int]string{2: "Imported", 3: "Walk-in", 4: ""})

	names := RaffleNames(r)
	assert.Equal(t, "Buyer", resolveName(names, 1))
	assert.Equal(t, "Imported", resolveName(names, 2))
	assert.Equal(t, "Walk-in", resolveName(names, 3))
	assert.Equal(t, UnknownParticipant, resolveName(names, 4))
	assert.Equal(t, UnknownParticipant, resolveName(names, 5))
	assert.Equal(t, UnknownParticipant, resolveName(nil, 1))
}

func TestImportParticipants_ReplacesDirectory(t *testing.T) {
	r := newTestRaffle(t, 10)
	r = ImportParticipants(r, map[int]string{1: "Ana"})

	src := map[int]string{2: "Luis"}
	out := ImportParticipants(r, src)
	src[3] = "late"

	assert.Equal(t, map[int]string{2: "Luis"}, out.State.Participants)
	assert.Equal(t, map[int]string{1: "Ana"}, r.State.Participants)
}
