// Package schema wraps the JSON Schema engine used by docvalidate.
//
// Schemas are compiled with github.com/santhosh-tekuri/jsonschema/v6 using
// Draft 2020-12 as the default dialect. Every compilation gets a fresh
// compiler whose file:// loader reads through the configured afero
// filesystem, so relative $refs resolve against the schema file's own
// location (its base URI, see resolve.BaseURI).
//
// The Draft 2020-12 metaschema comes from a [MetaschemaSource]: [Bundled]
// uses the copy embedded in the engine and never touches the network;
// [Remote] downloads the canonical document with a bounded timeout and
// validates against what it fetched.
package schema
