package registry

// builtin is the OAI NR physical-layer function fleet.
var builtin = []Descriptor{
	{Name: "nr_scramble", Port: 8001, Replicas: 2, CPU: "200m", Memory: "256Mi", Description: "5G NR scrambling sequence generator"},
	{Name: "nr_crc", Port: 8002, Replicas: 2, CPU: "100m", Memory: "128Mi", Description: "CRC computation for NR transport channels"},
	{Name: "nr_ofdm_modulation", Port: 8003, Replicas: 2, CPU: "200m", Memory: "256Mi", Description: "OFDM modulation for NR downlink"},
	{Name: "nr_precoding", Port: 8004, Replicas: 2, CPU: "150m", Memory: "192Mi", Description: "Precoding for MIMO transmission"},
	{Name: "nr_modulation_test", Port: 8005, Replicas: 1, CPU: "150m", Memory: "192Mi", Description: "QAM modulation testing (QPSK/16-QAM/64-QAM/256-QAM)"},
	{Name: "nr_layermapping", Port: 8006, Replicas: 2, CPU: "150m", Memory: "192Mi", Description: "Layer mapping for MIMO"},
	{Name: "nr_ldpc", Port: 8007, Replicas: 2, CPU: "250m", Memory: "512Mi", Description: "LDPC encoding for NR channels"},
	{Name: "nr_ofdm_demo", Port: 8008, Replicas: 1, CPU: "150m", Memory: "192Mi", Description: "OFDM modulation demonstration"},
	{Name: "nr_ch_estimation", Port: 8009, Replicas: 2, CPU: "200m", Memory: "256Mi", Description: "Channel estimation for PDSCH"},
	{Name: "nr_descrambling", Port: 8010, Replicas: 2, CPU: "200m", Memory: "256Mi", Description: "DLSCH descrambling with SIMD"},
	{Name: "nr_layer_demapping_test", Port: 8011, Replicas: 2, CPU: "150m", Memory: "192Mi", Description: "Layer demapping for receiver"},
	{Name: "nr_crc_check", Port: 8012, Replicas: 2, CPU: "150m", Memory: "192Mi", Description: "CRC validation for received data"},
	{Name: "nr_soft_demod", Port: 8013, Replicas: 2, CPU: "200m", Memory: "256Mi", Description: "Soft demodulation (LLR computation)"},
	{Name: "nr_mmse_eq", Port: 8014, Replicas: 2, CPU: "250m", Memory: "384Mi", Description: "MMSE equalization for MIMO reception"},
	{Name: "nr_ldpc_dec", Port: 8015, Replicas: 3, CPU: "300m", Memory: "512Mi", Description: "LDPC decoding with belief propagation"},
}

// Builtin returns the registry used when no registry file is configured.
func Builtin() *Registry {
	r, err := New(builtin...)
	if err != nil {
		panic("registry: invalid builtin fleet: " + err.Error())
	}
	return r
}
