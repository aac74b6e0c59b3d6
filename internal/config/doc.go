// Package config loads calculator settings.
//
// Settings come from four sources, lowest priority first:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file named by WithFile or CALCULATOR_CONFIG_FILE
//  3. CALCULATOR_* environment variables
//  4. Overrides supplied by the caller, typically command line flags
//
// Keys use snake_case in every source: max_history_size in a file is
// CALCULATOR_MAX_HISTORY_SIZE in the environment. After merging, Resolve
// derives the log and history paths from base_dir and Validate checks the
// result.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithFile("calc.toml"))
//	if err != nil {
//	    return err
//	}
//	if err := cfg.EnsureDirs(); err != nil {
//	    return err
//	}
package config
