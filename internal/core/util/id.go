package util

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateID returns a new document identifier in ObjectID hex form.
func GenerateID() string {
	return primitive.NewObjectID().Hex()
}

// FileSuffix returns a millisecond timestamp joined with a random number,
// used as the stem of uploaded file names.
func FileSuffix() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), rand.Int63n(1e9))
}
