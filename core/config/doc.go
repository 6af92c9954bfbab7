// Package config loads a YAML client configuration: default chat options,
// model aliases, per-provider endpoint and credential overrides, timeout and
// retry settings, and an optional dotenv file backing API key lookups.
//
// Example:
//
//	env_file: .env
//	timeout: 60s
//	defaults:
//	  temperature: 0.2
//	aliases:
//	  fast: groq::llama-3.1-8b-instant
//	providers:
//	  ollama:
//	    base_url: http://gpu-box:11434/
//	  openai:
//	    api_key_env: WORK_OPENAI_KEY
//
// Use Config.NewClient, or Config.ClientOptions to add more client options.
package config
