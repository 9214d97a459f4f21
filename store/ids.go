package store

import "go.mongodb.org/mongo-driver/bson/primitive"

// ObjectIDFilterValue converts a hex id into an ObjectID, falling back to the
// raw string for documents inserted by clients that use string ids.
func ObjectIDFilterValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// IDToString renders a document id the way Nightscout exposes it over its API.
func IDToString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}
