package fleet

// Runtime contract shared by every generated service scaffold and the
// probes of its workload manifest.
const (
	HealthPath  = "/health"
	ReadyPath   = "/ready"
	InfoPath    = "/info"
	PortEnv     = "PORT"
	LibPathEnv  = "OAI_LIB_PATH"
	OutputLimit = 500
	// ServicePort is the port every network manifest exposes.
	ServicePort = 80
	// ScaffoldVersion is reported by the scaffold's info endpoint.
	ScaffoldVersion = "1.0"
)
