// guardctl is the policy administration CLI for guard.
package main

import (
	"os"

	"github.com/kart-io/guard/internal/guardctl"
)

func main() {
	if err := guardctl.NewGuardCtlCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
