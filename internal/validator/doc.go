// Package validator holds the result model shared by every validation path.
//
// A validation produces an [Outcome]: success, failure (the document is
// wrong) or error (something unexpected happened while checking it).
// Failures and errors carry a one-line message plus optional [Issue]s with
// finer-grained detail, such as each failed schema keyword or OpenAPI violation.
//
// # Basic Usage
//
//	o := validator.Failed(path, rule.JSONInstance, err)
//	o.AddError("/name", "missing property 'name'", nil)
//
//	reporter := validator.NewReporter(os.Stdout, validator.FormatText)
//	_ = reporter.Report(o)
package validator
