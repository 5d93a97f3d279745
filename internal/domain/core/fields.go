package core

// FilterEmployeeFields blanks national ID, bank account and salary unless
// the viewer can edit employees or acts as HR.
func FilterEmployeeFields(emp *Employee, v Viewer) {
	if v.privileged() {
		return
	}
	emp.NationalID = ""
	emp.BankAccount = ""
	emp.Salary = nil
}

// SensitiveVisible reports whether reads by v reveal sensitive fields.
func SensitiveVisible(v Viewer) bool {
	return v.privileged()
}
