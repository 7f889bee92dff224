// Package config provides configuration management for docvalidate using
// Viper.
//
// # Configuration File
//
// docvalidate.yaml is searched for in the current directory, then in
// ~/.config/docvalidate/. Every key can also be set through a DOCVALIDATE_
// environment variable (nested keys use underscores) or a command-line flag.
//
//	root: .
//	fail_fast: true
//	format: text
//	exclude: [.git, node_modules, dist]
//	max_file_size: 10485760
//	metaschema:
//	  source: bundled            # or remote
//	  url: https://json-schema.org/draft/2020-12/schema
//	  timeout: 10s
//	openapi:
//	  strict: false
//	  include_warnings: false
//
// # Loading Configuration
//
//	config.Init()
//	cfg, err := config.Load(path) // empty path searches the defaults
//	if err != nil {
//		return err
//	}
//	if errs := config.Validate(cfg); len(errs) > 0 {
//		// report
//	}
package config
