// Package script runs crawl tasks written in Lua and turns what they emit
// into packages.
//
// A task file is executed in a sandbox and its run function is called with
// a task table:
//
//	-- @name: quotes
//	function run(task)
//	  local page = fetch(task.args.url)
//	  emit("quotes/page.html", page, "text/html")
//	  emit("quotes/meta.json", { url = task.args.url, size = #page })
//	end
//
// emit(name, content [, mime]) yields a package. Table content is encoded
// as JSON. fetch(url) is available when the runner has an HTTP client and
// returns the body, or nil and an error message. log(msg) writes to the
// runner's logger.
package script
