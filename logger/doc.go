// Package logger provides structured logging for kravl using zerolog.
//
// A Logger is created once from Config and then narrowed per component
// (a source, a sink, a unit) with WithComponent and WithFields. Pipeline
// drivers attach the run id and the package path to every record so a
// single crawl can be followed through the log.
//
// # Configuration
//
//	log:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.New(&cfg, "kravl").WithComponent("fs-sink")
//	log.Info("package written", logger.Fields(logger.FieldPath, p.Path, logger.FieldMime, p.Mime))
package logger
