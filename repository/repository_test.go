package repository

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

const testNS = "stayfinder.test"

func toDoc(t *testing.T, v interface{}) bson.D {
	t.Helper()
	data, err := bson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return doc
}

func matched(n int32) bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: n}, {Key: "nModified", Value: n}}
}
