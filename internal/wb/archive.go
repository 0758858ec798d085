package wb

import (
	"archive/zip"
	"fmt"
	"io"
)

// InnerDocumentName is the GRT XML document inside an mwb container.
const InnerDocumentName = "document.mwb.xml"

// ExtractModelDocument opens the mwb zip container and returns the
// bytes of the inner model document.
func ExtractModelDocument(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFileFormat, path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != InnerDocumentName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", InnerDocumentName, path, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", InnerDocumentName, path, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s has no %s", ErrInnerDocumentNotFound, path, InnerDocumentName)
}
