// Package errors provides the single error type used across kravl stages.
//
// Every stage fails with a plain error. Stages that want to classify a
// failure wrap it in *Error, which carries a machine-readable Code, a short
// message and the underlying cause. Causes are annotated with a stack trace
// via github.com/cockroachdb/errors so a failure logged at the driver can be
// traced back to the stage that produced it.
//
//	if err := os.WriteFile(p, data, 0o644); err != nil {
//	    return errors.IO("write", p, err)
//	}
//
//	if errors.IsCode(err, errors.CodeInvalidPath) {
//	    // skip the package
//	}
package errors
