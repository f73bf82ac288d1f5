package port

import "github.com/framelens/framelens-engine/internal/domain/entity"

// VideoLibrary resolves user-facing filenames to on-disk identities and
// enumerates the library. Implementations confine all access to one root
// directory.
type VideoLibrary interface {
	Root() string
	Resolve(filename string) (entity.VideoIdentity, error)
	ListVideoFiles(subdirectory string) ([]string, error)
}
