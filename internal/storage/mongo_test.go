package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBSONConversion_RoundTripsBoardDocument(t *testing.T) {
	raw := []byte(`{"tasks":{"t1":{"id":"t1","content":"a","assignedUserIds":["u1"],"progress":40,"icons":[],"lastUpdated":1740821415123}},"columns":{},"columnOrder":[],"currentUserId":null}`)

	doc, err := jsonToBSON(raw)
	require.NoError(t, err)
	doc = append(bson.D{{Key: "_id", Value: "default-board"}}, doc...)

	back, err := bsonToJSON(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(back))
}

func TestJSONToBSON_RejectsGarbage(t *testing.T) {
	_, err := jsonToBSON([]byte(`nope`))
	assert.Error(t, err)
}
