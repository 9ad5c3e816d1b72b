/*
 * MIT License
 *
 * Copyright (c) 2026 The imago Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package logger

import "github.com/sirupsen/logrus"

// Entry is a fluent log-line builder. Fields and errors accumulate on the
// value and are only materialized when Log is called.
type Entry struct {
	lvl    Level
	msg    string
	fields logrus.Fields
	errs   []error
	log    *logrus.Logger
}

func newEntry(log *logrus.Logger, lvl Level, msg string) *Entry {
	return &Entry{
		lvl:    lvl,
		msg:    msg,
		fields: logrus.Fields{},
		log:    log,
	}
}

// FieldAdd attaches a key/value pair to the entry.
func (e *Entry) FieldAdd(key string, val interface{}) *Entry {
	if e == nil {
		return e
	}
	e.fields[key] = val
	return e
}

// FieldMerge copies every key/value from a field set into the entry.
func (e *Entry) FieldMerge(fields map[string]interface{}) *Entry {
	if e == nil {
		return e
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// ErrorAdd records an error on the entry when cond is true and err is
// non-nil, mirroring the teacher's conditional-add idiom so call sites can
// write ErrorAdd(err != nil, err) without an extra branch.
func (e *Entry) ErrorAdd(cond bool, err error) *Entry {
	if e == nil || !cond || err == nil {
		return e
	}
	e.errs = append(e.errs, err)
	return e
}

// Check reports whether the entry would actually be emitted at lvlNoErr or
// above, letting call sites skip expensive field computation.
func (e *Entry) Check(lvlNoErr Level) bool {
	if e == nil || e.log == nil {
		return false
	}
	if len(e.errs) > 0 {
		return true
	}
	return e.lvl >= lvlNoErr
}

// Log emits the entry.
func (e *Entry) Log() {
	if e == nil || e.log == nil || e.lvl == NilLevel {
		return
	}

	fields := e.fields
	if len(e.errs) == 1 {
		fields["error"] = e.errs[0].Error()
	} else if len(e.errs) > 1 {
		strs := make([]string, 0, len(e.errs))
		for _, er := range e.errs {
			strs = append(strs, er.Error())
		}
		fields["errors"] = strs
	}

	e.log.WithFields(fields).Log(e.lvl.logrus(), e.msg)
}
