package jobs

import "strconv"

// ProcessingOptions carries the optional transform parameters attached to a
// submission. Every field is independently optional; nil fields are omitted
// from the outbound request so the server applies its own defaults.
type ProcessingOptions struct {
	// Image options.
	Width      *int
	Height     *int
	Quality    *int
	Brightness *float64
	Contrast   *float64
	Blur       *float64
	Sharpen    *bool
	Grayscale  *bool

	// Video/audio options.
	StartTime  *float64
	EndTime    *float64
	FPS        *int
	Bitrate    *string
	Resolution *string
	SampleRate *int
	Channels   *int
	Normalize  *bool
}

// FormField is a single string-valued form field produced from a set option.
type FormField struct {
	Key   string
	Value string
}

// FormFields serializes the set options into string-valued form fields in a
// stable order. Unset fields are omitted entirely, never sent as empty
// strings or zeros, and so never override server-side defaults.
func (o *ProcessingOptions) FormFields() []FormField {
	if o == nil {
		return nil
	}
	fields := make([]FormField, 0, 16)
	appendInt := func(key string, value *int) {
		if value != nil {
			fields = append(fields, FormField{Key: key, Value: strconv.Itoa(*value)})
		}
	}
	appendFloat := func(key string, value *float64) {
		if value != nil {
			fields = append(fields, FormField{Key: key, Value: strconv.FormatFloat(*value, 'f', -1, 64)})
		}
	}
	appendBool := func(key string, value *bool) {
		if value != nil {
			fields = append(fields, FormField{Key: key, Value: strconv.FormatBool(*value)})
		}
	}
	appendString := func(key string, value *string) {
		if value != nil && *value != "" {
			fields = append(fields, FormField{Key: key, Value: *value})
		}
	}

	appendInt("width", o.Width)
	appendInt("height", o.Height)
	appendInt("quality", o.Quality)
	appendFloat("brightness", o.Brightness)
	appendFloat("contrast", o.Contrast)
	appendFloat("blur", o.Blur)
	appendBool("sharpen", o.Sharpen)
	appendBool("grayscale", o.Grayscale)
	appendFloat("start_time", o.StartTime)
	appendFloat("end_time", o.EndTime)
	appendInt("fps", o.FPS)
	appendString("bitrate", o.Bitrate)
	appendString("resolution", o.Resolution)
	appendInt("sample_rate", o.SampleRate)
	appendInt("channels", o.Channels)
	appendBool("normalize", o.Normalize)
	return fields
}

// IsZero reports whether no option has been set.
func (o *ProcessingOptions) IsZero() bool {
	return o == nil || len(o.FormFields()) == 0
}
