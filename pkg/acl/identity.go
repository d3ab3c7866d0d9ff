package acl

import "reflect"

// Sameness reports whether two domain values name the same principal,
// securable, action, or strategy. Entries consult it for every scope
// comparison, so implementations should be cheap and side-effect free.
type Sameness func(a, b any) bool

// Identifier lets a domain type decide for itself which values it stands
// for. The default sameness test delegates to it after the identity and
// surrogate key checks.
type Identifier interface {
	Identifies(other any) bool
}

// Same is the default Sameness. Two values are the same when any of the
// following holds, checked in order:
//
//  1. they are identical values of the same comparable type;
//  2. both expose a non-zero surrogate identifier and the identifiers are
//     equal (an ID() method, an exported ID or Id struct field, or an "id"
//     or "_id" map entry);
//  3. either value implements Identifier and claims the other;
//  4. they are deeply equal.
//
// Nil never matches anything; absence is handled by the wildcard rules
// before sameness runs.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() && a == b {
		return true
	}
	if ida, ok := identityOf(a); ok {
		if idb, ok := identityOf(b); ok && equalValues(ida, idb) {
			return true
		}
	}
	if ident, ok := a.(Identifier); ok && ident.Identifies(b) {
		return true
	}
	if ident, ok := b.(Identifier); ok && ident.Identifies(a) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// identityOf extracts a surrogate identifier from v. Zero identifiers do
// not count; a struct with an empty ID field has no usable identity.
func identityOf(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}

	if m := rv.MethodByName("ID"); m.IsValid() {
		if mt := m.Type(); mt.NumIn() == 0 && mt.NumOut() == 1 {
			if id := m.Call(nil)[0].Interface(); !isZero(id) {
				return id, true
			}
		}
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		for _, name := range []string{"ID", "Id"} {
			f := rv.FieldByName(name)
			if f.IsValid() && f.CanInterface() && !f.IsZero() {
				return f.Interface(), true
			}
		}
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String && kt.Kind() != reflect.Interface {
			break
		}
		for _, key := range []string{"id", "_id"} {
			kv := reflect.ValueOf(key)
			if kt.Kind() == reflect.String && kv.Type() != kt {
				kv = kv.Convert(kt)
			}
			if mv := rv.MapIndex(kv); mv.IsValid() {
				if id := mv.Interface(); !isZero(id) {
					return id, true
				}
			}
		}
	}

	return nil, false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
