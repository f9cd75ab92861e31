// Package pack defines Package, the unit of data written by sinks.
//
// A Package is a logical relative path, a MIME type, a Body and a Meta bag.
// The Body may be in memory, an unread file on disk, a lazy stream such as
// an HTTP response, or empty. Loading promotes a lazy body to bytes exactly
// once; a loaded body never goes back to being lazy.
//
// Meta holds at most one value per Go type and is used to carry
// out-of-band data, such as the crawl task that produced a package, without
// widening the Package type:
//
//	pack.Insert(&p.Meta, pack.TaskName("news"))
//	if name, ok := pack.Get[pack.TaskName](&p.Meta); ok {
//	    log.Info("emitted", logger.Fields(logger.FieldTask, string(name)))
//	}
package pack
