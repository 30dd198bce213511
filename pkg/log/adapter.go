package log

import "github.com/sirupsen/logrus"

// CacheDBLogger satisfies badger.Logger so the response cache DB logs through
// the crawl's logrus pipeline instead of badger's default stderr logger.
type CacheDBLogger struct {
	entry *logrus.Entry
}

// NewCacheDBLogger wraps a scoped logrus entry for the cache DB
func NewCacheDBLogger(entry *logrus.Entry) *CacheDBLogger {
	return &CacheDBLogger{entry: entry}
}

func (l *CacheDBLogger) Errorf(f string, v ...interface{})   { l.entry.Errorf(f, v...) }
func (l *CacheDBLogger) Warningf(f string, v ...interface{}) { l.entry.Warningf(f, v...) }

// Infof is demoted to debug: badger reports value-log and table details on
// every open, which is noise next to per-spec crawl progress.
func (l *CacheDBLogger) Infof(f string, v ...interface{})  { l.entry.Debugf(f, v...) }
func (l *CacheDBLogger) Debugf(f string, v ...interface{}) { l.entry.Debugf(f, v...) }
