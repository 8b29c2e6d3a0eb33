package cache

import platformerrors "github.com/jmgilman/go/errors"

var (
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = platformerrors.New(platformerrors.CodeNotImplemented, "cache: no Loader provided")

	// ErrInvalidOptions wraps every Options validation failure.
	ErrInvalidOptions = platformerrors.New(platformerrors.CodeInvalidConfig, "cache: invalid options")

	// ErrSnapshotNotFound is returned by LoadSnapshot when the file is absent.
	ErrSnapshotNotFound = platformerrors.New(platformerrors.CodeNotFound, "cache: snapshot not found")

	// ErrSnapshotCorrupt is returned by LoadSnapshot for undecodable files,
	// checksum mismatches and unsupported versions.
	ErrSnapshotCorrupt = platformerrors.New(platformerrors.CodeInvalidInput, "cache: snapshot is corrupt")
)
