package shpsql

import (
	"path/filepath"

	"github.com/nao1215/shpsql/source"
)

// tableFromFilePath creates table name from file path.
// Compression and dataset extensions are removed: "data/roads.dbf.gz" becomes "roads".
func tableFromFilePath(filePath string) string {
	return filepath.Base(source.TrimExtensions(filePath))
}
