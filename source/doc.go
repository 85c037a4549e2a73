// Package source opens geographic vector datasets as model.Dataset values.
//
// Supported inputs:
//   - ESRI Shapefile: .shp geometry, .shx index, .dbf attributes, .prj projection, .cpg code page
//   - OGC GeoPackage (.gpkg): the first feature table, or the first attribute table
//   - Attribute-only tables: CSV (.csv), TSV (.tsv), Excel (.xlsx), Parquet (.parquet)
//
// Every file may additionally be compressed (.gz, .bz2, .xz, .zst).
// Shapefile components are located from any one of their paths or from the
// bare base name, so "roads", "roads.shp" and "roads.dbf.gz" all open the same dataset.
//
// Attribute-only tables carry no type information of their own; field types
// are inferred from the values (see model.InferFieldDescriptors).
package source
