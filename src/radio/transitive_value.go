package radio

// ----- Transitive Value ----- //

// transitiveValue moves linearly towards a target; it implements the slow
// up / slow down of a mix.
type transitiveValue struct {
	moving       bool
	started      bool
	duration     float64 // ms
	elapsed      float64 // ms
	initialValue float64
	targetValue  float64
	value        float64
}

func (tv *transitiveValue) init(value float64) {
	tv.moving = false
	tv.started = true
	tv.duration = 0
	tv.elapsed = 0
	tv.initialValue = value
	tv.targetValue = value
	tv.value = value
}

func (tv *transitiveValue) linear(duration float64, targetValue float64) {
	if duration <= 0 {
		tv.init(targetValue)
		return
	}
	tv.moving = true
	tv.duration = duration
	tv.elapsed = 0
	tv.initialValue = tv.value
	tv.targetValue = targetValue
}

// step advances by dt ms and reports whether the target was reached.
func (tv *transitiveValue) step(dt float64) bool {
	if !tv.moving {
		return false
	}
	tv.elapsed += dt
	if tv.elapsed >= tv.duration {
		tv.end()
		return true
	}
	t := tv.elapsed / tv.duration
	tv.value = t*tv.targetValue + (1-t)*tv.initialValue
	return false
}

func (tv *transitiveValue) end() {
	tv.moving = false
	tv.elapsed = 0
	tv.value = tv.targetValue
}
