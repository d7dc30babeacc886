package model

import "testing"

func fptr(v float64) *float64 { return &v }

func TestDeriveTags(t *testing.T) {
	rec := JobRecord{
		ExperienceLevel: "senior",
		JobType:         "full_time",
		Skills:          []string{"Go", "PostgreSQL", "AWS", "Docker", "Kubernetes", "Terraform"},
		AIProcessed:     true,
	}

	tags := DeriveTags(rec)
	want := []string{
		"level_senior", "type_full_time",
		"skill_go", "skill_postgresql", "skill_aws", "skill_docker", "skill_kubernetes",
		"ai_verified",
	}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestDeriveTagsSparseRecord(t *testing.T) {
	if tags := DeriveTags(JobRecord{}); len(tags) != 0 {
		t.Fatalf("empty record should derive no tags, got %v", tags)
	}

	tags := DeriveTags(JobRecord{Skills: []string{"Machine Learning"}})
	if len(tags) != 1 || tags[0] != "skill_machine_learning" {
		t.Fatalf("tags = %v, want [skill_machine_learning]", tags)
	}
}

func TestEffectiveSalary(t *testing.T) {
	cases := []struct {
		name     string
		min, max *float64
		want     float64
		ok       bool
	}{
		{"both bounds", fptr(80000), fptr(120000), 100000, true},
		{"min only", fptr(60000), nil, 60000, true},
		{"max only", nil, fptr(150000), 150000, true},
		{"neither", nil, nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := JobRecord{SalaryMin: tc.min, SalaryMax: tc.max}.EffectiveSalary()
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got (%v, %v), want (%v, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
