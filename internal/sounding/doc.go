// Package sounding derives severe-weather parameters from an upper-air
// sounding: parcel CAPE, bulk wind shear, storm-relative helicity and the
// supercell composite parameter that feeds the SCP heat field.
//
// Pressures are hPa, heights metres above sea level, temperatures °C and
// input winds knots (speed) and degrees (direction the wind blows from).
// Derived winds and shear are m/s.
package sounding
