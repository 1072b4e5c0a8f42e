// Package utils exposes reusable helpers consumed by the gst commands.
//
// ConfigurationLoader merges the embedded defaults, an optional config file,
// and GSTREE_ environment overrides through Viper. LoggerFactory builds zap
// loggers with an optional rotating log file. FlushingWriter keeps streamed
// git output visible as it is produced.
package utils
