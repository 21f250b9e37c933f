// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON and CUE documents against embedded CUE schemas.
//
// Package manifests (pkgbind.json) and the application configuration
// (config.cue) share the same three-step flow:
//
//  1. Compile the embedded schema
//  2. Compile the user document and unify it with the schema definition
//  3. Validate and decode into a Go value
//
// JSON is a subset of CUE, so manifests are compiled unchanged.
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schema string
//
//	result, err := cueutil.ParseAndDecodeString[rawPackageFile](
//	    schema,
//	    data,
//	    "#PackageFile",
//	    cueutil.WithFilename("vendor/a/pkgbind.json"),
//	)
//	if err != nil {
//	    return nil, err // includes the JSON path of the offending value
//	}
package cueutil
