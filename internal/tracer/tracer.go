package tracer

import (
	"strconv"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/mocktracer"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// StartTracer initializes the DataDog tracer tagged with the default chain id.
// If enabled is false, it starts a mock tracer instead
func StartTracer(enabled bool, chainId uint64) {
	if !enabled {
		mocktracer.Start()
		return
	}
	ddTracer.Start(
		ddTracer.WithEnv(strconv.FormatUint(chainId, 10)),
		ddTracer.WithServiceName("calldecoder"),
		ddTracer.WithGlobalServiceName(true),
		ddTracer.WithDebugMode(false),
		ddTracer.WithLogStartup(false),
	)
}

func StopTracer() {
	ddTracer.Stop()
}
