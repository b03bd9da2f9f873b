// Package logging writes leveled messages ([DEBUG], [INFO], [WARN], [ERROR])
// through the standard logger.
//
// The level is read once from IMAGEDB_LOG_LEVEL (or LOG_LEVEL, or DEBUG=true)
// and can be changed at runtime with [SetLevel]; the CLI's -v flag does so.
package logging
