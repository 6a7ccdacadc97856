package media

import "context"

// Decoder is the black-box decode engine boundary. Implementations turn an
// acquired file into a decodable clip object and report metadata; the engine
// itself is external to this core.
type Decoder interface {
	Decode(ctx context.Context, filePath string) (*DecodedObjects, Metadata, error)
}
