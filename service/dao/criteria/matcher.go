package criteria

import (
	"github.com/viant/diskor/service/dao"
)

// Parameter names understood by the matchers
const (
	State = "State"
	Name  = "Name"
)

// Match returns true when every known parameter matches the supplied
// values. Unknown parameters are ignored.
func Match(state, name string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		switch parameter.Name {
		case State:
			if !matchValue(state, parameter.Value) {
				return false
			}
		case Name:
			if !matchValue(name, parameter.Value) {
				return false
			}
		}
	}
	return true
}

// FilterByState returns true when the state matches the State parameter.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	return Match(state, "", filter(parameters, State))
}

func filter(parameters []*dao.Parameter, name string) []*dao.Parameter {
	var ret []*dao.Parameter
	for _, parameter := range parameters {
		if parameter != nil && parameter.Name == name {
			ret = append(ret, parameter)
		}
	}
	return ret
}

func matchValue(actual string, expected interface{}) bool {
	switch candidate := expected.(type) {
	case string:
		return actual == candidate
	case []string:
		for _, s := range candidate {
			if actual == s {
				return true
			}
		}
		return false
	}
	return true
}
