// Package shpsql converts geographic vector datasets into MySQL statements
// or bulk loader rows.
//
// A dataset is an attribute table with optional geometry: an ESRI Shapefile
// (.shp, .shx, .dbf, .prj, .cpg), a GeoPackage, or an attribute-only CSV,
// TSV, XLSX or Parquet file. Inputs may be compressed (gzip, bzip2, xz,
// zstandard).
//
// # Basic Usage
//
//	exporter, err := shpsql.NewExporter(shpsql.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := exporter.Export(ctx, os.Stdout, "cities.shp"); err != nil {
//	    log.Fatal(err)
//	}
//
// The output starts with the table definition:
//
//	DROP TABLE IF EXISTS `cities`;
//	CREATE TABLE `cities` (
//	  `id` INT UNSIGNED NOT NULL auto_increment,
//	  `NAME` CHAR(10) NOT NULL,
//	  `geo` GEOMETRY NOT NULL,
//	  SPATIAL INDEX (`geo`),
//	  PRIMARY KEY (`id`)
//	);
//
// followed by one INSERT statement per record:
//
//	INSERT INTO `cities` VALUES (NULL, 'Springfield', GEOMFROMTEXT('POINT(1 2)')
//	);
//
// # Multiple Datasets
//
// Datasets are written in the order given. The first one fixes the table
// layout and the field renames; every later dataset must carry the same
// fields, otherwise ErrSchemaMismatch is returned.
//
// # Delimited Output
//
// With OutputDelimited each record becomes one tab separated line for
// LOAD DATA INFILE. Backslash, tab and newline are escaped, a generated key
// is written as \N and no schema is emitted. Delimited output requires
// GeometryText.
//
// # Identifiers
//
// Table and column names are wrapped in backquotes. A name that contains a
// backquote is rejected with ErrFormat.
package shpsql
