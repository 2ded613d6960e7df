package material

import "testing"

func TestCreateBuildsDescriptorSetLayout(t *testing.T) {
	gpu := &fakeGPU{}
	def, err := Create(gpu, newLitParser(), 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if def.Name != "lit" {
		t.Fatalf("Name = %q, want %q", def.Name, "lit")
	}
	if def.CacheID != 7 {
		t.Fatalf("CacheID = %d, want 7", def.CacheID)
	}
	if !def.DescriptorSetLayout().IsValid() {
		t.Fatal("expected a valid descriptor set layout handle")
	}
	if gpu.layoutsCreated != 1 {
		t.Fatalf("layoutsCreated = %d, want 1", gpu.layoutsCreated)
	}
}

func TestCreateWithNilGPUSkipsLayoutCreation(t *testing.T) {
	def, err := Create(nil, newLitParser(), 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if def.DescriptorSetLayout().IsValid() {
		t.Fatal("expected no descriptor set layout handle without a GPU")
	}
}

func TestTerminateTwicePanics(t *testing.T) {
	gpu := &fakeGPU{}
	def, _ := Create(gpu, newLitParser(), 0)
	def.Terminate(gpu)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic terminating a Definition twice")
		}
	}()
	def.Terminate(gpu)
}
