package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

// readRecords decodes a JSON array of records from path, or from stdin when
// path is "-". Records without a type get one from their extension.
func readRecords(path string, stdin io.Reader) ([]artifact.Record, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, platformerrors.Wrapf(err, platformerrors.CodeNotFound, "open records %s", path)
		}
		defer f.Close()
		r = f
	}

	var recs []artifact.Record
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&recs); err != nil {
		return nil, platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "decode records %s", path)
	}
	for i := range recs {
		if recs[i].Type == artifact.Unknown {
			recs[i].Type = artifact.TypeForPath(recs[i].Path)
		}
	}
	return recs, nil
}

func requireInput(path string) error {
	if path == "" {
		return fmt.Errorf("%w: --input is required", errUsage)
	}
	return nil
}
