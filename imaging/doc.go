// Package imaging decodes image packages, transforms them and encodes them
// back into packages.
//
//	images := pipeline.Pipe(src, imaging.Decode())
//	out := pipeline.Cloned(images,
//	    pipeline.And(imaging.Apply(imaging.Resize{Width: 200}), imaging.Save(imaging.PNG())),
//	    imaging.Save(imaging.JPEG(80)),
//	)
package imaging
