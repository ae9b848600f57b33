package ortengine

import (
	ort "github.com/yalue/onnxruntime_go"

	"sessiond/internal/manager"
)

// graphLevel maps the manager enum onto ONNX Runtime. Unset means "all",
// matching the runtime's own default.
func graphLevel(l manager.GraphOptimizationLevel) ort.GraphOptimizationLevel {
	switch l {
	case manager.GraphOptimizationDisabled:
		return ort.GraphOptimizationLevelDisableAll
	case manager.GraphOptimizationBasic:
		return ort.GraphOptimizationLevelEnableBasic
	case manager.GraphOptimizationExtended:
		return ort.GraphOptimizationLevelEnableExtended
	default:
		return ort.GraphOptimizationLevelEnableAll
	}
}

// loggingLevel maps an ONNX Runtime severity number (0 verbose .. 4 fatal).
// Out-of-range values are clamped.
func loggingLevel(severity int) ort.LoggingLevel {
	switch {
	case severity <= 0:
		return ort.LoggingLevelVerbose
	case severity == 1:
		return ort.LoggingLevelInfo
	case severity == 2:
		return ort.LoggingLevelWarning
	case severity == 3:
		return ort.LoggingLevelError
	default:
		return ort.LoggingLevelFatal
	}
}
