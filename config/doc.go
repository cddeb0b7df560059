// Package config loads the configuration of processes that run pipeline
// jobs.
//
// LoadConfig reads a YAML file and an optional .env file with Viper and
// godotenv, then lets environment variables override any key:
//
//	cfg, err := config.LoadFlowConfig("ingest")
//	// PIPELINE_PARALLELISM=8 overrides pipeline.parallelism
//
// FlowConfig embeds ServiceConfig and adds the pipeline and telemetry
// sections. Both are defaulted and validated before LoadFlowConfig returns.
package config
