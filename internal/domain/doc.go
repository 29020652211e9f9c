// Package domain models the radar pulse scene and its per-frame update.
//
// # Scene
//
// The ground is the XZ plane, 100x100 units centred on the origin, with Y up.
// Radar stations sit just above the ground and each emits one [Pulse], a
// sphere whose radius grows while the pulse is active. Surface observation
// [Station] markers bloom (scale toward 2) while any active pulse covers them
// and relax back to 1 otherwise. A grid of cone [Indicator]s reacts to the
// nearest pulse: away from it until the wavefront reaches them, toward it
// after ([AttractInside]); [RepelInside] selects the mirror rule.
//
// # Frame update
//
// [Step] is a pure function of (scene, params, random draws). It returns the
// next [Scene] and a [Frame] of writes for a renderer: pulse scales, indicator
// rotations, station scales and the shader time uniform. Identical inputs and
// identical draws produce identical frames.
//
// Per frame, in order:
//
//	time     += 0.05
//	pulses   active: radius += 0.2, reset to 1 and idle once radius > 50
//	         idle:   activate with probability 0.02
//	cones    nearest pulse (first minimum wins); act only if it is active
//	stations active if any active pulse has distance < radius; scale ±0.1, clamped to [1,2]
//
// # Weather uniforms
//
// CAPE (Convective Available Potential Energy, J/kg) and SCP (Supercell
// Composite Parameter, dimensionless) samples arrive as {lat, lon, cape, scp}
// and are laid out as Vec4{lon+50, lat+50, cape, scp} in a fixed-capacity
// array (see [Reshape]). [HeatField] evaluates the same intensity the
// fragment shaders compute, for renderers without a GPU.
package domain
