/*
penaltyvision runs a YOLOv8 detection model, trained to tell Penalty from
Non-Penalty events in Formula 1 footage, from Go.

Training, evaluation and export are handled by the Ultralytics toolchain (see
the train package), which produces an ONNX model.  This package loads that
model into an inference Engine backed either by ONNX Runtime or by the OpenCV
DNN module, so the prediction and video processing tools work on any host
with those libraries installed.

See the binaries under cmd/ for usage.
*/
package penaltyvision
