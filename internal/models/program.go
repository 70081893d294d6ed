package models

// TopSetTarget is the rep/RIR window prescribed for an exercise's top set.
type TopSetTarget struct {
	MinReps   int `yaml:"min_reps" json:"min_reps"`
	MaxReps   int `yaml:"max_reps" json:"max_reps"`
	TargetRIR int `yaml:"target_rir" json:"target_rir"`
}

// ExerciseTemplate is immutable reference data describing a prescribed exercise.
type ExerciseTemplate struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	MuscleGroup string        `yaml:"muscle_group" json:"muscle_group"`
	Notes       string        `yaml:"notes" json:"notes,omitempty"`
	RampUpSets  int           `yaml:"ramp_up_sets" json:"ramp_up_sets"`
	RampUpRule  string        `yaml:"ramp_up_rule" json:"ramp_up_rule,omitempty"`
	TopSet      *TopSetTarget `yaml:"top_set" json:"top_set,omitempty"`
	BackOffSets int           `yaml:"back_off_sets" json:"back_off_sets"`
	BackOffRule string        `yaml:"back_off_rule" json:"back_off_rule"`
	IsKeyLift   bool          `yaml:"key_lift" json:"is_key_lift"`

	// IsSupportVolume overrides the default (every non key lift is support volume).
	IsSupportVolume *bool `yaml:"support_volume" json:"is_support_volume,omitempty"`
}

// SupportVolume reports whether the exercise counts as support volume for
// periodization modifiers.
func (t ExerciseTemplate) SupportVolume() bool {
	if t.IsSupportVolume != nil {
		return *t.IsSupportVolume
	}
	return !t.IsKeyLift
}

// ProgramDay is one day of the weekly template.
type ProgramDay struct {
	ID        string             `yaml:"id" json:"id"`
	Name      string             `yaml:"name" json:"name"`
	Focus     string             `yaml:"focus" json:"focus"`
	Exercises []ExerciseTemplate `yaml:"exercises" json:"exercises"`
}
