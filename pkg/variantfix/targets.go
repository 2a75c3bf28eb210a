package variantfix

// DefaultTargets lists the module sources rewritten when no targets are given.
// Paths are relative to the patch root.
func DefaultTargets() []string {
	return []string{
		"core/CRMModule.cpp",
		"core/SalesModule.cpp",
		"core/SupportModule.cpp",
		"core/ProjectsModule.cpp",
		"core/FinanceModule.cpp",
		"core/HRModule.cpp",
		"core/InventoryModule.cpp",
		"core/ComplianceModule.cpp",
	}
}
