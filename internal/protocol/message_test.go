package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRef_UnmarshalJSON(t *testing.T) {
	t.Run("Bare room id", func(t *testing.T) {
		var ref RoomRef

		require.NoError(t, json.Unmarshal([]byte(`"12345"`), &ref))

		assert.Equal(t, RoomRef{RoomID: "12345"}, ref)
	})

	t.Run("Object with token", func(t *testing.T) {
		var ref RoomRef

		require.NoError(t, json.Unmarshal([]byte(`{"roomId":"12345","token":"abc"}`), &ref))

		assert.Equal(t, RoomRef{RoomID: "12345", Token: "abc"}, ref)
	})

	t.Run("Neither string nor object", func(t *testing.T) {
		var ref RoomRef

		assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
	})
}

func TestEncode(t *testing.T) {
	t.Run("Payload is nested under the action", func(t *testing.T) {
		data, err := Encode(ActionRoomCreated, "12345")
		require.NoError(t, err)

		assert.JSONEq(t, `{"action":"roomCreated","payload":"12345"}`, string(data))
	})

	t.Run("Nil payload is omitted", func(t *testing.T) {
		data, err := Encode(ActionGetRooms, nil)
		require.NoError(t, err)

		assert.JSONEq(t, `{"action":"getRooms"}`, string(data))
	})

	t.Run("Round trip through Decode", func(t *testing.T) {
		data, err := Encode(ActionMakeMove, MovePayload{RoomID: "12345", Position: new(int)})
		require.NoError(t, err)

		msg, err := Decode(data)
		require.NoError(t, err)

		var move MovePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &move))
		assert.Equal(t, ActionMakeMove, msg.Action)
		require.NotNil(t, move.Position)
		assert.Equal(t, 0, *move.Position)
	})
}
