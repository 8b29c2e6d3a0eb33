package ranking

import platformerrors "github.com/jmgilman/go/errors"

// ErrInvalidWeights wraps every Weights validation failure.
var ErrInvalidWeights = platformerrors.New(platformerrors.CodeInvalidConfig, "ranking: invalid weights")
