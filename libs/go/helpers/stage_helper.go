package helpers

import (
	"fmt"
	"os"

	"github.com/nexfield/nexfield-api/libs/go/constants"
)

// Deployment stages. Prod and dev run in Lambda; local runs the plain
// binaries.
const (
	StageProd  = constants.ProdEnvironment
	StageDev   = constants.DevEnvironment
	StageLocal = "local"
)

// IsValidStage reports whether stage names a known deployment stage.
func IsValidStage(stage string) bool {
	switch stage {
	case StageProd, StageDev, StageLocal:
		return true
	default:
		return false
	}
}

// ResolveStage reads STAGE from the environment. An unset stage means
// local; an unknown one is an error rather than a guess, because the
// stage selects logging output and queue wiring.
func ResolveStage() (string, error) {
	stage := os.Getenv("STAGE")
	if stage == "" {
		return StageLocal, nil
	}
	if !IsValidStage(stage) {
		return "", fmt.Errorf("invalid STAGE %q: must be one of %s, %s, %s",
			stage, StageProd, StageDev, StageLocal)
	}
	return stage, nil
}
