// Package memory provides an in-process session store, used by the console
// chat and by tests.
package memory
