package persist

import "testing"

func TestRegisterTypeDefaults(t *testing.T) {
	directory.reset()
	RegisterType[testSettings]()

	entries := directory.snapshot()
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries, want 1", len(entries))
	}
	reg := entries[0]
	if reg.TypeName != "TestSettings" {
		t.Errorf("TypeName = %q", reg.TypeName)
	}
	if reg.Mode != ModeDev {
		t.Errorf("Mode = %v, want dev", reg.Mode)
	}
	if !reg.AutoSave {
		t.Error("AutoSave default must be true")
	}
	if reg.attach == nil {
		t.Error("wiring callback missing")
	}
}

func TestRegisterTypeOptionalInterfaces(t *testing.T) {
	directory.reset()
	RegisterType[manualSettings]()
	RegisterType[dynamicProgress]()
	RegisterType[embeddedTheme]()

	byName := map[string]Registration{}
	for _, reg := range directory.snapshot() {
		byName[reg.TypeName] = reg
	}
	if byName["ManualSettings"].AutoSave {
		t.Error("AutoSaver implementation ignored")
	}
	if byName["DynamicProgress"].Mode != ModeDynamic {
		t.Error("ModeProvider implementation ignored")
	}
	if byName["EmbeddedTheme"].EmbeddedData == "" {
		t.Error("Embedder implementation ignored")
	}
}

func TestRegisterTypeOptionsOverride(t *testing.T) {
	directory.reset()
	RegisterType[testSettings](WithTypeMode(ModeSecure), WithTypeAutoSave(false))

	reg := directory.snapshot()[0]
	if reg.Mode != ModeSecure || reg.AutoSave {
		t.Errorf("options not applied: mode=%v auto=%v", reg.Mode, reg.AutoSave)
	}
}

func TestRegisterTypeDuplicate(t *testing.T) {
	directory.reset()
	RegisterType[testSettings]()
	RegisterType[testSettings](WithTypeAutoSave(false))

	entries := directory.snapshot()
	if len(entries) != 1 {
		t.Fatalf("duplicate registration appended, %d entries", len(entries))
	}
	if entries[0].AutoSave {
		t.Error("last registration must win")
	}
}

func TestRegisteredTypesOrder(t *testing.T) {
	directory.reset()
	RegisterType[testSettings]()
	RegisterType[manualSettings]()

	got := RegisteredTypes()
	if len(got) != 2 || got[0] != "TestSettings" || got[1] != "ManualSettings" {
		t.Errorf("RegisteredTypes = %v", got)
	}
}
