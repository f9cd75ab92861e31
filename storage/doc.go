// Package storage provides object storage backends that pipelines write
// packages to and read packages from.
//
// Backends register themselves with RegisterFactory and are selected by
// Config.Provider:
//
//   - storage/local: local filesystem, with an exclusive-per-path writer
//   - storage/s3: Amazon S3 and S3-compatible storage
//
// # Configuration
//
//	sink:
//	  provider: "s3"
//	  bucket: "crawl-output"
//	  region: "eu-west-1"
//	  prefix: "runs/2026-10"
package storage
