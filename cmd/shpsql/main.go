// shpsql converts geographic vector datasets into MySQL statements.
//
// It reads ESRI Shapefiles, GeoPackages and attribute-only CSV, TSV, XLSX or
// Parquet files and writes a CREATE TABLE statement followed by one INSERT
// per record, or tab separated rows for LOAD DATA INFILE.
//
// Usage:
//
//	# Print the schema and data of a shapefile
//	shpsql roads.shp
//
//	# Load several shapefiles into one table
//	shpsql -t roads roads_east.shp roads_west.shp | mysql gis
//
//	# Write rows for LOAD DATA INFILE
//	shpsql -i -G -o roads.txt roads.shp
//
//	# Export only matching records, renaming a field
//	shpsql -q "TYPE=highway" -r "NAME=road_name" roads.shp
//
// Exit status is 0 on success, 1 on usage or output errors, 2 when an input
// format is not supported and 3 when an input dataset cannot be opened.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
