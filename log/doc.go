// Package log provides the logging facility used by the stategraph engine.
//
// The engine logs through a small Logger interface so applications can plug
// in their own logging stack. Two implementations ship with the module: a
// leveled DefaultLogger on the standard library, and GologLogger adapting
// kataras/golog. A package-level default (info level, stderr) is used by the
// engine itself; replace or silence it globally:
//
//	log.SetLogLevel(log.LogLevelDebug)           // verbose engine logging
//	log.SetDefaultLogger(&log.NoOpLogger{})      // silence the engine
//	log.SetDefaultLogger(log.NewGologLogger(golog.Default))
//
// Engine logging is intentionally sparse: node execution, checkpoint commits
// and run lifecycle at debug level, recoverable oddities at warn.
package log
