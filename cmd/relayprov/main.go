package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/plan"
	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

func main() {
	err := newRootCmd().Execute()
	os.Exit(exitCode(os.Stderr, err))
}

// exitError carries a run's exit code out of cobra without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitCode prints err and maps it to the process exit code: option and plan
// validation failures are 2, a finished run reports its own code, anything
// else is 1.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return model.ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	fmt.Fprintln(w, err)
	if plan.IsValidationError(err) || relayerrors.IsUserError(err) {
		return model.ExitValidation
	}
	return model.ExitAborted
}
